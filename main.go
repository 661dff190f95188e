package main

import "Taskflow/Commands"

func main() {
	Commands.Execute()
}
