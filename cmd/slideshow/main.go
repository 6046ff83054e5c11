package main

import "github.com/GarrickGarcia/SlideShow-Agent/internal/cli"

func main() {
	cli.Main()
}
