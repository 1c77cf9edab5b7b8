// Package templates holds the versioned template sets embedded in the binary.
// A set is a template.yaml descriptor, listing the directories to create and
// the files to write (in order), plus a files/ tree keyed by output path.
// Sources ending in .tmpl are rendered with text/template; everything else is
// copied byte for byte.
package templates
