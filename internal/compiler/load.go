package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/htn/internal/ir"
)

// domainsKey is the top-level field holding domains in a CUE package.
const domainsKey = "domain"

// LoadMode controls how errors are handled while loading domains.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult holds the domains found in a CUE file or package directory.
type LoadResult struct {
	Domains   []*ir.Domain
	Value     cue.Value // the built CUE value
	FileCount int
}

// Domain returns the loaded domain called name. An empty name selects the
// only domain when exactly one was loaded.
func (r *LoadResult) Domain(name string) (*ir.Domain, error) {
	if name == "" {
		if len(r.Domains) != 1 {
			return nil, fmt.Errorf("%d domains loaded, choose one by name", len(r.Domains))
		}
		return r.Domains[0], nil
	}
	for _, d := range r.Domains {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("domain %q not found", name)
}

// Load reads every domain under the top-level "domain" field of a CUE
// file or of the CUE package in a directory.
//
// With LoadModeFailFast the first failing domain stops loading. With
// LoadModeCollectAll every domain is attempted and all errors returned.
func Load(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, []error{fmt.Errorf("domain path: %w", err)}
	}

	cfg := &load.Config{Dir: path}
	args := []string{"."}
	files := 1
	if info.IsDir() {
		cueFiles, err := FindCUEFiles(path)
		if err != nil {
			return nil, []error{fmt.Errorf("scanning %s: %w", path, err)}
		}
		if len(cueFiles) == 0 {
			return nil, []error{fmt.Errorf("no CUE files found in %s", path)}
		}
		files = len(cueFiles)
	} else {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded from %s", path)}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{formatCUEError(inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	result := &LoadResult{Value: value, FileCount: files}
	domains := value.LookupPath(cue.ParsePath(domainsKey))
	if !domains.Exists() {
		return result, []error{&CompileError{Field: domainsKey, Message: "no domains found", Pos: value.Pos()}}
	}

	iter, err := domains.Fields()
	if err != nil {
		return result, []error{formatCUEError(err)}
	}
	var errs []error
	for iter.Next() {
		d, err := CompileDomain(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("domain %s: %w", iter.Label(), err))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Domains = append(result.Domains, d)
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
