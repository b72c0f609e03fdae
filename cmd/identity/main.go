package main

import "github.com/averix/identity/app"

func main() {
	app.New(nil).Run()
}
