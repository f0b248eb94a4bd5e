package session

import "path/filepath"

// encodePath flattens an absolute directory path into a single path
// component so each project gets its own directory under <home>/projects.
func encodePath(dir string) string {
	out := make([]byte, len(dir))
	for i := 0; i < len(dir); i++ {
		c := dir[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out[i] = c
		default:
			out[i] = '-'
		}
	}
	return string(out)
}

// ProjectDir returns the per-project state directory for cwd.
func ProjectDir(home, cwd string) string {
	return filepath.Join(home, "projects", encodePath(cwd))
}

// SessionFile returns the journal path for a session in cwd.
func SessionFile(home, cwd, sessionID string) string {
	return filepath.Join(ProjectDir(home, cwd), "sessions", sessionID+".jsonl")
}
