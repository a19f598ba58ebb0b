/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/supportdesk/apiserver/cmd"

func main() {
	cmd.Execute()
}
