package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Error code constants shared with the CLI's JSON error envelope.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeNoLocks     = "E101" // No lock definitions
	ErrCodeInvalidLock = "E102" // Lock failed schema or compile checks
	ErrCodeUnknownLock = "E103" // Named lock not defined
	ErrCodeAmbiguous   = "E104" // Several locks and none named
)

// LoadError represents an error that occurred while loading lock files.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Code extracts the error code from err, or ErrCodeGeneric.
func Code(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return ErrCodeInvalidLock
	}
	return ErrCodeGeneric
}

// LoadDir loads every .cue file under dir as one CUE instance and
// compiles each lock it defines. Locks are returned sorted by name.
func LoadDir(dir string) ([]Lock, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing config directory: %v", err)}
	}
	if !info.IsDir() {
		return LoadFile(dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances(files, nil)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return compileLocks(value)
}

// LoadFile loads a single CUE file.
func LoadFile(path string) ([]Lock, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return LoadBytes(path, data)
}

// LoadBytes compiles CUE source. filename is used for error positions.
func LoadBytes(filename string, data []byte) ([]Lock, error) {
	value := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: formatCUEError(err).Error()}
	}
	return compileLocks(value)
}

func compileLocks(value cue.Value) ([]Lock, error) {
	unified, err := applySchema(value)
	if err != nil {
		return nil, wrapCompileError(err)
	}

	locksVal := unified.LookupPath(cue.ParsePath("lock"))
	if !locksVal.Exists() {
		return nil, &LoadError{Code: ErrCodeNoLocks, Message: "no lock definitions found"}
	}

	iter, err := locksVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating locks: %v", err)}
	}

	var locks []Lock
	for iter.Next() {
		l, err := CompileLock(iter.Value())
		if err != nil {
			return nil, wrapCompileError(err)
		}
		locks = append(locks, *l)
	}
	if len(locks) == 0 {
		return nil, &LoadError{Code: ErrCodeNoLocks, Message: "no lock definitions found"}
	}

	sort.Slice(locks, func(i, j int) bool { return locks[i].Name < locks[j].Name })
	return locks, nil
}

// wrapCompileError converts a CompileError to a LoadError with position info.
func wrapCompileError(err error) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &LoadError{Code: ErrCodeInvalidLock, Message: fmt.Sprintf("%s: %s", ce.Field, ce.Message), Pos: ce.Pos}
	}
	return &LoadError{Code: ErrCodeInvalidLock, Message: err.Error()}
}

// FindCUEFiles returns the absolute paths of the .cue files directly in
// dir, sorted. Subdirectories are not searched: command-line CUE files
// must share one directory.
func FindCUEFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, err
		}
		files = append(files, abs)
	}
	sort.Strings(files)
	return files, nil
}
