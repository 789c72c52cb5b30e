// Package template renders Go text templates with the sprig function
// library for the text.template capability.
package template
