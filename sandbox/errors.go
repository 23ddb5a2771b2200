package sandbox

import "fmt"

// TempDirError reports a failure to provision the ephemeral directory.
type TempDirError struct {
	Err error
}

func (e *TempDirError) Error() string {
	return fmt.Sprintf("create ephemeral directory: %v", e.Err)
}

func (e *TempDirError) Unwrap() error { return e.Err }

// DirChangeError reports a failure to change the process working directory.
// Path is the directory the change targeted.
type DirChangeError struct {
	Path string
	Err  error
}

func (e *DirChangeError) Error() string {
	return fmt.Sprintf("change working directory to %s: %v", e.Path, e.Err)
}

func (e *DirChangeError) Unwrap() error { return e.Err }

// DirRemovalError reports a failure to delete the ephemeral directory.
type DirRemovalError struct {
	Path string
	Err  error
}

func (e *DirRemovalError) Error() string {
	return fmt.Sprintf("remove ephemeral directory %s: %v", e.Path, e.Err)
}

func (e *DirRemovalError) Unwrap() error { return e.Err }
