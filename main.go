package main

import "github.com/datastax/cassandra-document-api/cmd"

func main() {
	cmd.Execute()
}
