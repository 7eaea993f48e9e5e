package main

import (
	server "github.com/azharpratama/tenso/cmd/server"
)

func main() {
	server.Main()
}
