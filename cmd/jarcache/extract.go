package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/jarcache/archive"
)

func newExtractCmd(cfgFile *string) *cobra.Command {
	var native, classes, resources bool

	cmd := &cobra.Command{
		Use:   "extract ARCHIVE...",
		Short: "Unpack archives and print the cache directory",
		Long: `Unpack the selected categories of each archive into a new cache
directory and leave it in place. With no category flags every category is
unpacked in a single pass per archive.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, archives, err := setup(cmd, *cfgFile, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, c.TempDir())

			want := selected(native, classes, resources)
			for _, a := range archives {
				got, err := addSelected(c, a, want)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\n", a.Path(), got)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&native, "native", false, "unpack native libraries")
	cmd.Flags().BoolVar(&classes, "classes", false, "unpack class files")
	cmd.Flags().BoolVar(&resources, "resources", false, "unpack resources")
	return cmd
}

func selected(native, classes, resources bool) archive.Categories {
	var want archive.Categories
	if native {
		want = want.With(archive.NativeLibrary)
	}
	if classes {
		want = want.With(archive.ClassFile)
	}
	if resources {
		want = want.With(archive.Resource)
	}
	if want.IsEmpty() {
		return archive.All
	}
	return want
}

type adder interface {
	AddAll(*archive.Archive) (bool, error)
	AddNativeLibs(*archive.Archive) (bool, error)
	AddClasses(*archive.Archive) (bool, error)
	AddResources(*archive.Archive) (bool, error)
}

// addSelected runs the add operations for want and returns the categories
// newly extracted.
func addSelected(c adder, a *archive.Archive, want archive.Categories) (archive.Categories, error) {
	if want == archive.All {
		added, err := c.AddAll(a)
		if err != nil || !added {
			return 0, err
		}
		return archive.All, nil
	}

	ops := map[archive.Category]func(*archive.Archive) (bool, error){
		archive.NativeLibrary: c.AddNativeLibs,
		archive.ClassFile:     c.AddClasses,
		archive.Resource:      c.AddResources,
	}
	var got archive.Categories
	var firstErr error
	want.Each(func(cat archive.Category) {
		if firstErr != nil {
			return
		}
		added, err := ops[cat](a)
		if err != nil {
			firstErr = err
			return
		}
		if added {
			got = got.With(cat)
		}
	})
	return got, firstErr
}
