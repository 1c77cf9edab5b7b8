// Package manifest validates the structured files of a template set before
// anything is written: the template.yaml descriptor and the generated
// package.json are checked against embedded JSON Schemas, dependency ranges
// are parsed as semver constraints, and the packages loaded by
// webpack.config.js and .babelrc are cross-checked against the ones
// package.json declares.
package manifest
