package capability

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrPickAborted is returned by a Picker when the user dismisses it.
var ErrPickAborted = errors.New("pick aborted")

// Picker asks the user for the path of a backing file.
type Picker interface {
	Pick(ctx context.Context) (string, error)
}

// PathPicker is a Picker for a path the user already typed, e.g. as a
// command-line flag. An empty path counts as a cancelled pick.
type PathPicker string

// Pick implements Picker.
func (p PathPicker) Pick(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p == "" {
		return "", ErrPickAborted
	}
	return string(p), nil
}

// HuhPicker shows an interactive terminal file picker limited to .json files.
type HuhPicker struct {
	// Dir is the directory the picker starts in (default: working directory).
	Dir string
	// Title overrides the picker heading.
	Title string
}

// Pick implements Picker.
func (p *HuhPicker) Pick(ctx context.Context) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("interactive file picker requires a terminal; pass --file instead")
	}

	dir := p.Dir
	if dir == "" {
		dir = "."
	}
	title := p.Title
	if title == "" {
		title = "Pick shared JSON file"
	}

	var path string
	picker := huh.NewFilePicker().
		Title(title).
		Description("All users must pick the SAME file.").
		CurrentDirectory(dir).
		AllowedTypes([]string{".json"}).
		FileAllowed(true).
		DirAllowed(false).
		Value(&path)

	err := huh.NewForm(huh.NewGroup(picker)).RunWithContext(ctx)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrPickAborted
		}
		return "", err
	}
	if path == "" {
		return "", ErrPickAborted
	}
	return path, nil
}
