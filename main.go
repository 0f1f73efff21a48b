// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/rtprov/cmd/rtprov"

func main() {
	cmd.Execute()
}
