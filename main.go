package main

import "github.com/theopenlane/privacyguard/cmd"

func main() {
	cmd.Execute()
}
