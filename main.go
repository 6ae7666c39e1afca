// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// bdsetup entry point

package main

import "github.com/sony-level/bdsetup/cmd"

func main() {
	cmd.Execute()
}
