package blockdev

import (
	"io"

	"github.com/xaionaro-go/bytesextra"

	"github.com/blockfs-go/uvfs6/errors"
	"github.com/blockfs-go/uvfs6/utilities/compression"
)

// Export writes an RLE8+gzip-compressed snapshot of the device's full byte
// array to w. This is an explicit, on-demand capability (analogous to
// `docker save`) and is not part of the mount/mkfs lifecycle: the device
// itself remains a volatile in-memory array for the duration of a mount.
func (d *Device) Export(w io.Writer) (int64, errors.DriverError) {
	if err := d.begin(stateReading); err != nil {
		return 0, err
	}
	defer d.end()

	if _, err := d.stream.Seek(0, io.SeekStart); err != nil {
		return 0, errors.IOFailure.WrapError(err)
	}
	n, err := compression.CompressImage(d.stream, w)
	if err != nil {
		return 0, errors.IOFailure.WrapError(err)
	}
	return n, nil
}

// Import builds a new Device whose contents are a previously Export-ed
// snapshot. The decompressed payload must be exactly Size bytes.
func Import(r io.Reader) (*Device, errors.DriverError) {
	raw, err := compression.DecompressImageToBytes(r)
	if err != nil {
		return nil, errors.IOFailure.WrapError(err)
	}
	if len(raw) != Size {
		return nil, errors.IOFailure.WithMessage("snapshot has the wrong size for this geometry")
	}
	return &Device{stream: bytesextra.NewReadWriteSeeker(raw)}, nil
}
