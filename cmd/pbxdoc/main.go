// Package main is the entry point for pbxdoc, a tool that documents a PBX
// configuration as wiki text.
package main

func main() {
	Execute()
}
