package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/fat32fs"
	"github.com/dargueta/fat32vfs/geometry"
)

func main() {
	app := &cli.App{
		Name:  "fat32lookup",
		Usage: "Resolve a path against a FAT32 disk image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "image",
				Usage:    "path to a raw FAT32 disk image",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "partition",
				Usage: "MBR partition index to mount",
				Value: 0,
			},
			&cli.Uint64Flag{
				Name:  "sector-size",
				Usage: "device sector size in bytes",
				Value: 512,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "print the mounted volume's geometry before resolving PATH",
			},
		},
		ArgsUsage: "PATH",
		Action:    runLookup,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func runLookup(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("a PATH argument is required", 1)
	}

	f, err := os.OpenFile(c.String("image"), os.O_RDWR, 0)
	if err != nil {
		return cli.Exit(fmt.Sprintf("opening image: %s", err.Error()), 1)
	}
	defer f.Close()

	dev := devio.NewSeekerDevice(f, f, uint16(c.Uint64("sector-size")))

	sb, err := fat32fs.Mount(dev, c.Int("partition"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("mount: %s", err.Error()), 1)
	}
	defer fat32fs.Unmount(sb)

	if c.Bool("verbose") {
		freeClusters := "unknown"
		if sb.FSInfo.Valid() {
			freeClusters = fmt.Sprintf("%d", sb.FSInfo.FreeClusterCount)
		}
		fmt.Printf("volume %q: media %s, %d bytes/cluster, root cluster %d, free clusters: %s\n",
			sb.Geo.VolumeLabel, geometry.DescribeMediaType(sb.Geo.Media), sb.Geo.BytesPerCluster,
			sb.Geo.RootCluster, freeClusters)
	}

	dentry, err := fat32fs.Lookup(sb, path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("lookup %q: %s", path, err.Error()), 1)
	}

	kind := "file"
	if dentry.Inode.IsDir() {
		kind = "directory"
	}
	fmt.Printf("%s: %s, first cluster %d, size %d bytes\n",
		dentry.Name, kind, dentry.Inode.FirstCluster, dentry.Inode.Size)
	return nil
}
