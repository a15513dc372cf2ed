package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 256 << 10
)

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	f.Add([]byte{})
	f.Add([]byte("[shader]\n"))
	f.Add([]byte("[shader]\nstage = \"compute\"\n[[call]]\nop = \"add\"\n"))
}

func addTestdataSeeds(f *testing.F) {
	scripts, err := testdataScripts()
	if err != nil {
		return
	}
	paths := make([]string, 0, len(scripts))
	for path := range scripts {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		f.Add(clampSeed(scripts[path]))
	}
}

// testdataScripts reads the *.irs.toml scripts of the repository testdata tree.
func testdataScripts() (map[string][]byte, error) {
	root := filepath.Join("..", "..", "testdata")
	scripts := make(map[string][]byte)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(path, ".irs.toml") {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		scripts[path] = src
		return nil
	})
	return scripts, err
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
