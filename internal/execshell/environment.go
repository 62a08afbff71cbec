package execshell

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	pathEnvironmentVariableNameConstant    = "PATH"
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s=%s"
	executablePermissionMaskConstant       = fs.FileMode(0o111)
)

// EnvironmentSnapshot is an explicit copy of the process-wide inputs used to resolve and launch commands.
type EnvironmentSnapshot struct {
	PathValue        string
	WorkingDirectory string
	Variables        map[string]string
}

// CaptureEnvironment snapshots the current process environment and working directory.
func CaptureEnvironment() EnvironmentSnapshot {
	variables := ParseEnvironmentList(os.Environ())
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		workingDirectory = ""
	}
	return EnvironmentSnapshot{
		PathValue:        variables[pathEnvironmentVariableNameConstant],
		WorkingDirectory: workingDirectory,
		Variables:        variables,
	}
}

// SearchPaths returns the ordered executable search directories described by the snapshot.
func (snapshot EnvironmentSnapshot) SearchPaths() []string {
	return SearchPaths(snapshot.PathValue, snapshot.WorkingDirectory)
}

// EnvironmentList renders the snapshot variables as sorted KEY=VALUE assignments.
func (snapshot EnvironmentSnapshot) EnvironmentList() []string {
	return FormatEnvironmentList(snapshot.Variables)
}

// SearchPaths splits a PATH-like value on the platform list separator. Relative entries are
// resolved against currentWorkingDirectory and empty entries are skipped.
func SearchPaths(pathValue string, currentWorkingDirectory string) []string {
	searchPaths := make([]string, 0)
	for _, pathEntry := range filepath.SplitList(pathValue) {
		trimmedEntry := strings.TrimSpace(pathEntry)
		if len(trimmedEntry) == 0 {
			continue
		}
		if filepath.IsAbs(trimmedEntry) {
			searchPaths = append(searchPaths, filepath.Clean(trimmedEntry))
			continue
		}
		searchPaths = append(searchPaths, filepath.Join(currentWorkingDirectory, trimmedEntry))
	}
	return searchPaths
}

// ParseEnvironmentList converts KEY=VALUE assignments into a map. Later assignments win.
func ParseEnvironmentList(assignments []string) map[string]string {
	variables := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		environmentKey, environmentValue, separatorFound := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if !separatorFound || len(environmentKey) == 0 {
			continue
		}
		variables[environmentKey] = environmentValue
	}
	return variables
}

// FormatEnvironmentList renders variables as KEY=VALUE assignments sorted by key.
func FormatEnvironmentList(variables map[string]string) []string {
	environmentKeys := make([]string, 0, len(variables))
	for environmentKey := range variables {
		environmentKeys = append(environmentKeys, environmentKey)
	}
	sort.Strings(environmentKeys)

	assignments := make([]string, 0, len(environmentKeys))
	for _, environmentKey := range environmentKeys {
		assignments = append(assignments, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, variables[environmentKey]))
	}
	return assignments
}

// FileSystem exposes the file metadata lookups required for executable resolution.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ExecutableResolver turns command names into absolute executable paths.
type ExecutableResolver struct {
	fileSystem FileSystem
}

// NewExecutableResolver constructs a resolver. A nil file system falls back to OSFileSystem.
func NewExecutableResolver(fileSystem FileSystem) *ExecutableResolver {
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}
	return &ExecutableResolver{fileSystem: fileSystem}
}

// Resolve returns the executable path for name. Absolute names are returned unchanged when they
// point at an executable file; other names are looked up in searchPaths in order and the first
// match wins. A missing executable is reported with false, not an error.
func (resolver *ExecutableResolver) Resolve(name string, searchPaths []string) (string, bool) {
	if len(name) == 0 {
		return "", false
	}

	if filepath.IsAbs(name) {
		if resolver.isExecutableFile(name) {
			return name, true
		}
		return "", false
	}

	for _, searchPath := range searchPaths {
		candidatePath := filepath.Join(searchPath, name)
		if resolver.isExecutableFile(candidatePath) {
			return candidatePath, true
		}
	}
	return "", false
}

func (resolver *ExecutableResolver) isExecutableFile(candidatePath string) bool {
	fileSystem := resolver.fileSystem
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}
	fileInfo, statError := fileSystem.Stat(candidatePath)
	if statError != nil {
		return false
	}
	if !fileInfo.Mode().IsRegular() {
		return false
	}
	return fileInfo.Mode().Perm()&executablePermissionMaskConstant != 0
}
