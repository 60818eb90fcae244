// Command maskstats prints the statistics of every mask layer of a project.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"segmate/internal/project"
	"segmate/internal/stats"
	"segmate/internal/store"
)

func main() {
	flag.Usage = func() {
		fmt.Println("Usage: maskstats <project.spf|archive> [index]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	st, cleanup, err := open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open project: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	first, last := 0, st.Len()-1
	if flag.NArg() > 1 {
		i, err := strconv.Atoi(flag.Arg(1))
		if err != nil || i < 0 || i >= st.Len() {
			fmt.Fprintf(os.Stderr, "Invalid index %q (project has %d images)\n", flag.Arg(1), st.Len())
			cleanup()
			os.Exit(1)
		}
		first, last = i, i
	}

	fmt.Printf("%d images, %d layers\n", st.Len(), st.NumLayers())
	for i := first; i <= last; i++ {
		frame, err := st.Get(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Image %d: %v\n", i, err)
			continue
		}
		all, err := stats.Layers(frame, func(l int) bool { return st.Layer(l).Mask })
		if err != nil {
			fmt.Fprintf(os.Stderr, "Image %d: %v\n", i, err)
			continue
		}

		fmt.Printf("\n[%d] %s\n", i, filepath.Base(st.Path(i, 0)))
		for l, s := range all {
			if !st.Layer(l).Mask {
				continue
			}
			fmt.Printf("  %-16s %s\n", st.Layer(l).Folder, s)
		}
	}
}

// open loads the store of a project file or archive.
func open(path string) (*store.Store, func(), error) {
	if project.IsArchive(path) {
		a, err := project.OpenArchive(path)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { _ = a.Close() }
		st, err := a.Project.OpenStore()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return st, cleanup, nil
	}

	p, err := project.Load(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := p.OpenStore()
	if err != nil {
		return nil, nil, err
	}
	return st, func() {}, nil
}
