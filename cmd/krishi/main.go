// Command krishi is the KrishiSevak farming assistant client.
package main

import "github.com/mesh-intelligence/krishi/internal/cli"

func main() {
	cli.Execute()
}
