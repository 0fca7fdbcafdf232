package main

import "github.com/ValentinKolb/dSend/cmd"

func main() {
	cmd.Execute()
}
