package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7B61FF"))

	styled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
)

func render(style lipgloss.Style, s string) string {
	if !styled {
		return s
	}
	return style.Render(s)
}

func successText(s string) string {
	return render(successStyle, s)
}

func errorText(s string) string {
	return render(errorStyle, s)
}

func warningText(s string) string {
	return render(warningStyle, s)
}

func infoText(s string) string {
	return render(infoStyle, s)
}
