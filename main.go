package main

import "github.com/shuangsilab/ncm-dumper/cmd"

func main() {
	cmd.Execute()
}
