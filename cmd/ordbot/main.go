package main

import "github.com/aislam23/synergetic-ord-bot/internal/app"

func main() {
	app.Run()
}
