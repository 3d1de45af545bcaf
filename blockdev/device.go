// Package blockdev implements the simulated block device uvfs6 mounts: a
// fixed-size byte array, sliced into 512-byte sectors, guarded by a
// three-state lock that rejects re-entrant access.
package blockdev

import (
	"fmt"
	"io"

	"github.com/xaionaro-go/bytesextra"

	"github.com/blockfs-go/uvfs6/errors"
)

// SectorSize is the size, in bytes, of one sector.
const SectorSize = 512

// TotalSectors is the number of sectors on the device (64 blocks of 8
// sectors each).
const TotalSectors = 64 * 8

// Size is the total size, in bytes, of the device.
const Size = TotalSectors * SectorSize

type state int

const (
	stateFree state = iota
	stateReading
	stateWriting
)

// Device is a volatile, in-memory block device. It exists for the lifetime
// of the owning process; nothing is persisted unless Export is called
// explicitly.
//
// Device is not safe for concurrent use: the single-operation lock exists to
// reject re-entrant calls within one goroutine (e.g. a bug that calls
// ReadSector from inside a callback passed to WriteSector), not to
// coordinate multiple goroutines.
type Device struct {
	state  state
	stream io.ReadWriteSeeker
}

// New creates a zeroed device of exactly Size bytes.
func New() *Device {
	return &Device{
		stream: bytesextra.NewReadWriteSeeker(make([]byte, Size)),
	}
}

func (d *Device) begin(next state) errors.DriverError {
	if d.state != stateFree {
		return errors.DeviceBusy
	}
	d.state = next
	return nil
}

func (d *Device) end() {
	d.state = stateFree
}

// ReadSector reads sector idx into a freshly allocated SectorSize-byte slice.
func (d *Device) ReadSector(idx uint32) ([]byte, errors.DriverError) {
	if err := d.begin(stateReading); err != nil {
		return nil, err
	}
	defer d.end()

	buf := make([]byte, SectorSize)
	if _, err := d.stream.Seek(int64(idx)*SectorSize, io.SeekStart); err != nil {
		return nil, errors.IOFailure.WrapError(err)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return nil, errors.IOFailure.WrapError(err)
	}
	return buf, nil
}

// WriteSector writes exactly SectorSize bytes of sect to sector idx.
func (d *Device) WriteSector(idx uint32, sect []byte) errors.DriverError {
	if len(sect) != SectorSize {
		return errors.IOFailure.WithMessage(
			fmt.Sprintf("sector buffer must be %d bytes, got %d", SectorSize, len(sect)),
		)
	}
	if err := d.begin(stateWriting); err != nil {
		return err
	}
	defer d.end()

	if _, err := d.stream.Seek(int64(idx)*SectorSize, io.SeekStart); err != nil {
		return errors.IOFailure.WrapError(err)
	}
	if _, err := d.stream.Write(sect); err != nil {
		return errors.IOFailure.WrapError(err)
	}
	return nil
}
