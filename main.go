package main

import "github.com/viakashmir/admin-console/cmd"

func main() {
	cmd.Execute()
}
