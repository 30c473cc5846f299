// SpritePack packs sprite and UI rectangles into a compact texture atlas.
//
// Build:
//   go build -o spritepack ./cmd/spritepack
//
// Usage:
//   spritepack pack sprites.csv --manifest atlas.json --preview atlas.png
//   spritepack compare sprites.csv
package main

import "github.com/piwi3910/SpritePack/cmd/spritepack/commands"

func main() {
	commands.Execute()
}
