package main

import "github.com/theirongolddev/glm-statusline/cmd"

func main() {
	cmd.Execute()
}
