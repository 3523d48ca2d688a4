package main

import "chem-datapackager/internal/cli"

func main() {
	cli.Execute()
}
