// Command sportsgate runs the quota-aware sports data gateway.
package main

func main() {
	Execute()
}
