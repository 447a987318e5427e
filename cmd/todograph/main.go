// Command todograph is a todo list whose tasks form a dependency graph. It
// serves the HTTP API, runs the terminal UI, and manages tasks from the shell.
package main

func main() {
	Execute()
}
