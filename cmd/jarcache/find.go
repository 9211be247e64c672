package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFindCmd(cfgFile *string) *cobra.Command {
	var libraries, resources, classes []string
	var keep bool

	cmd := &cobra.Command{
		Use:   "find ARCHIVE...",
		Short: "Unpack archives and resolve names against the cache",
		Long: `Unpack every category of each archive, then resolve the requested
library, resource, and class names. Each lookup prints one line:

  KIND<TAB>NAME<TAB>PATH

with PATH replaced by "not found" on a miss. The exit status is 1 if any
lookup missed. The cache directory is removed afterwards unless --keep is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			c, archives, err := setup(cmd, *cfgFile, args)
			if err != nil {
				return err
			}
			if !keep {
				defer func() {
					if closeErr := c.Close(); closeErr != nil && err == nil {
						err = closeErr
					}
				}()
			}

			for _, a := range archives {
				if _, err := c.AddAll(a); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			missed := false
			report := func(kind, name string, path string, ok bool) {
				if !ok {
					missed = true
					path = "not found"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", kind, name, path)
			}
			for _, name := range libraries {
				p, ok := c.FindLibrary(name)
				report("library", name, p, ok)
			}
			for _, name := range resources {
				p, ok := c.FindResource(name)
				report("resource", name, p, ok)
			}
			for _, name := range classes {
				p, ok := c.FindClass(name)
				report("class", name, p, ok)
			}
			if missed {
				// The result lines already say what missed; main maps this to exit status 1.
				cmd.SilenceErrors = true
				return errLookupMiss
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&libraries, "library", "l", nil, "logical native library name to resolve (repeatable)")
	cmd.Flags().StringSliceVarP(&resources, "resource", "r", nil, "resource path to resolve (repeatable)")
	cmd.Flags().StringSliceVarP(&classes, "class", "c", nil, "binary class name to resolve (repeatable)")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the cache directory")
	return cmd
}
