package main

import "sitelabor/internal/app/server"

func main() {
	server.Run()
}
