// Package scaffold creates a new project from a template set. A run validates
// the requested name, renders the template set into a static plan of
// directories and files, writes that plan to disk in order, and finally runs
// the package manager's install command inside the new project.
//
// Writes are not atomic: a failure part way through leaves the partially
// created tree in place, and a re-run stops at the "already exists" check
// until the user removes it.
package scaffold
