// Package main provides the nmrcore command-line tool.
//
// nmrcore exposes the spectral core from the shell: unit conversion along
// a spectral dimension, least-squares fitting of relaxation and line-shape
// models, line-shape deconvolution and peak-list editing.
//
// Usage:
//
//	nmrcore convert 4.7p --to point
//	nmrcore fit --equation xexp data.csv
//	nmrcore deconv --width 2 spectrum.txt
//	nmrcore peaks --remove 4.5:5 peaks.txt
//
// See --help for all available options.
package main

func main() {
	Execute()
}
