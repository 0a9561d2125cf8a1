package main

import "fmt"

const coreVersion = "0.1.0"

func versionMain() {
	fmt.Println("gbacore", coreVersion)
}
