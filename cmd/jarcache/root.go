package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/meigma/jarcache"
	"github.com/meigma/jarcache/archive"
)

// errLookupMiss is returned by find when at least one name did not resolve.
var errLookupMiss = errors.New("one or more names not found")

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "jarcache",
		Short: "Unpack archives into an extraction cache and resolve names against it",
		Long: `jarcache unpacks native libraries, class files, and resources from
zip/JAR archives and eStargz blobs into one temporary directory.

Each category of each archive is extracted at most once per run. Archives
are identified by content digest, so the same file under two names is
unpacked once.

Configuration is read from --config, then JARCACHE_* environment variables
(for example JARCACHE_TEMP_ROOT), then flags.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml, or json)")
	flags.String("temp-root", "", "parent directory for the cache directory (default is the system temp dir)")
	flags.String("platform", "", "GOOS whose native library naming rules apply (default is the running platform)")
	flags.Bool("cross-platform", false, "accept library file names decorated for any platform")
	flags.Int("workers", 0, "entries written concurrently (default is GOMAXPROCS)")
	flags.Bool("overwrite", false, "replace files that already exist in the cache directory")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(newExtractCmd(&cfgFile))
	root.AddCommand(newFindCmd(&cfgFile))
	return root
}

// setup resolves configuration for cmd and opens a cache plus the named
// archives.
func setup(cmd *cobra.Command, cfgFile string, paths []string) (*jarcache.Cache, []*archive.Archive, error) {
	cfg, err := loadConfig(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)
	c := newCache(cfg, logger)
	if err := c.Init(); err != nil {
		return nil, nil, err
	}

	archives := make([]*archive.Archive, 0, len(paths))
	for _, p := range paths {
		a, err := archive.Open(p)
		if err != nil {
			_ = c.Close()
			return nil, nil, err
		}
		logger.Debug("opened archive", "path", a.Path(), "digest", a.Digest().String(), "media_type", a.MediaType())
		archives = append(archives, a)
	}
	return c, archives, nil
}
