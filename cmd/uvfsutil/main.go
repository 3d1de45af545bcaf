// Command uvfsutil is a batch command-line tool for creating, inspecting,
// and mutating a uvfs6 filesystem image stored as a compressed snapshot
// file. It is deliberately not an interactive shell: every invocation
// mounts the image, resolves every path argument from the filesystem
// root, performs exactly one operation, and (for mutating commands)
// writes the image back out before exiting.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/blockfs-go/uvfs6/blockdev"
	"github.com/blockfs-go/uvfs6/fsck"
	"github.com/blockfs-go/uvfs6/report"
	"github.com/blockfs-go/uvfs6/uvfs6"
)

const imageFlag = "image"

func imagePath(c *cli.Context) string {
	return c.String(imageFlag)
}

func loadImage(path string) (*uvfs6.Filesystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	dev, derr := blockdev.Import(f)
	if derr != nil {
		return nil, fmt.Errorf("import image: %w", derr)
	}
	fs, merr := uvfs6.Mount(dev)
	if merr != nil {
		return nil, fmt.Errorf("mount image: %w", merr)
	}
	return fs, nil
}

func saveImage(path string, fs *uvfs6.Filesystem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	defer f.Close()

	if _, werr := fs.Export(f); werr != nil {
		return fmt.Errorf("export image: %w", werr)
	}
	return nil
}

func withMutableImage(c *cli.Context, fn func(fs *uvfs6.Filesystem) error) error {
	fs, err := loadImage(imagePath(c))
	if err != nil {
		return err
	}
	if err := fn(fs); err != nil {
		return err
	}
	return saveImage(imagePath(c), fs)
}

func withReadOnlyImage(c *cli.Context, fn func(fs *uvfs6.Filesystem) error) error {
	fs, err := loadImage(imagePath(c))
	if err != nil {
		return err
	}
	return fn(fs)
}

func main() {
	app := &cli.App{
		Name:  "uvfsutil",
		Usage: "inspect and mutate a uvfs6 filesystem image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     imageFlag,
				Aliases:  []string{"i"},
				Usage:    "path to the filesystem image file",
				Required: true,
			},
		},
		Commands: []*cli.Command{
			formatCommand,
			mkdirCommand,
			touchCommand,
			rmCommand,
			rmdirCommand,
			mvCommand,
			writeCommand,
			catCommand,
			lsCommand,
			grepCommand,
			fsckCommand,
			reportCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("uvfsutil: %v", err)
	}
}

var formatCommand = &cli.Command{
	Name:      "format",
	Usage:     "create a new, empty filesystem image",
	ArgsUsage: " ",
	Action: func(c *cli.Context) error {
		dev := blockdev.New()
		if err := uvfs6.Mkfs(dev); err != nil {
			return err
		}
		fs, err := uvfs6.Mount(dev)
		if err != nil {
			return err
		}
		return saveImage(imagePath(c), fs)
	},
}

var mkdirCommand = &cli.Command{
	Name:      "mkdir",
	Usage:     "create a directory",
	ArgsUsage: "PATH",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		return withMutableImage(c, func(fs *uvfs6.Filesystem) error {
			return fs.Mkdir(fs.Home(), path)
		})
	},
}

var touchCommand = &cli.Command{
	Name:      "touch",
	Usage:     "create an empty regular file",
	ArgsUsage: "PATH",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		return withMutableImage(c, func(fs *uvfs6.Filesystem) error {
			return fs.Touch(fs.Home(), path)
		})
	},
}

var rmCommand = &cli.Command{
	Name:      "rm",
	Usage:     "remove a regular file",
	ArgsUsage: "PATH",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		return withMutableImage(c, func(fs *uvfs6.Filesystem) error {
			return fs.Rm(fs.Home(), path)
		})
	},
}

var rmdirCommand = &cli.Command{
	Name:      "rmdir",
	Usage:     "recursively remove a directory",
	ArgsUsage: "PATH",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		return withMutableImage(c, func(fs *uvfs6.Filesystem) error {
			return fs.Rmdir(fs.Home(), path)
		})
	},
}

var mvCommand = &cli.Command{
	Name:      "mv",
	Usage:     "move or rename a file or directory",
	ArgsUsage: "OLD_PATH NEW_PATH",
	Action: func(c *cli.Context) error {
		oldPath, newPath := c.Args().Get(0), c.Args().Get(1)
		return withMutableImage(c, func(fs *uvfs6.Filesystem) error {
			return fs.Mv(fs.Home(), oldPath, newPath)
		})
	},
}

var writeCommand = &cli.Command{
	Name:      "write",
	Usage:     "overwrite a regular file's contents from stdin",
	ArgsUsage: "PATH",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		data, rerr := io.ReadAll(os.Stdin)
		if rerr != nil {
			return fmt.Errorf("read stdin: %w", rerr)
		}
		return withMutableImage(c, func(fs *uvfs6.Filesystem) error {
			return fs.Write(fs.Home(), path, data)
		})
	},
}

var catCommand = &cli.Command{
	Name:      "cat",
	Usage:     "print a regular file's contents",
	ArgsUsage: "PATH",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		return withReadOnlyImage(c, func(fs *uvfs6.Filesystem) error {
			out, err := fs.Cat(fs.Home(), path)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		})
	},
}

var lsCommand = &cli.Command{
	Name:      "ls",
	Usage:     "list a directory's entries",
	ArgsUsage: "[PATH]",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		return withReadOnlyImage(c, func(fs *uvfs6.Filesystem) error {
			out, err := fs.Ls(fs.Home(), path)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		})
	},
}

var grepCommand = &cli.Command{
	Name:      "grep",
	Usage:     "print the whitespace-delimited words of a file matching a pattern",
	ArgsUsage: "PATTERN PATH",
	Action: func(c *cli.Context) error {
		pattern, path := c.Args().Get(0), c.Args().Get(1)
		return withReadOnlyImage(c, func(fs *uvfs6.Filesystem) error {
			out, err := fs.Grep(fs.Home(), path, pattern)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		})
	},
}

var fsckCommand = &cli.Command{
	Name:  "fsck",
	Usage: "validate every allocation invariant and report violations",
	Action: func(c *cli.Context) error {
		return withReadOnlyImage(c, func(fs *uvfs6.Filesystem) error {
			if err := fsck.Check(fs); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		})
	},
}

var reportCommand = &cli.Command{
	Name:  "report",
	Usage: "dump the inode allocation table as CSV",
	Action: func(c *cli.Context) error {
		return withReadOnlyImage(c, func(fs *uvfs6.Filesystem) error {
			out, err := report.DumpAllocationTable(fs)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		})
	},
}
