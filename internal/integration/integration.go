// Package integration embeds the shell snippet installed by --init.
package integration

import (
	"bytes"
	_ "embed"
	"os/exec"
	"path/filepath"
	"text/template"
)

//go:embed zsh-fzf.sh
var zshFzf string

// Render produces the zsh integration script with the interpreter path
// resolved on the current machine. It fails when zsh is not installed.
func Render() (string, error) {
	zsh, err := exec.LookPath("zsh")
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("zsh-fzf").Parse(zshFzf)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any{
		"ZSH": filepath.ToSlash(zsh),
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}
