// Package installer runs a Node package manager's install command inside a
// freshly created project, streaming its output to the terminal.
package installer
