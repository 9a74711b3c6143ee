// Package ui provides theme and color support for the command-line output.
// It defines color schemes, ANSI escape code helpers and the lipgloss styles
// used to render result tables.
//
// Colors are disabled globally by InitTheme when --no-color is passed or the
// NO_COLOR environment variable is set.
package ui
