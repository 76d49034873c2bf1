// Command catalogctl is the operator CLI for the catalog job queue.
package main

func main() {
	Execute()
}
