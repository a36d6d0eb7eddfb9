package main

import "matstock-backend/internal/cli"

func main() {
	cli.Execute()
}
