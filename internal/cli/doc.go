// Package cli defines the Cobra command tree. The root command scaffolds a
// project; each other file registers one subcommand (version, doctor,
// config). Commands only parse flags, load configuration and format output;
// the work happens in the scaffold, installer and templates packages.
package cli
