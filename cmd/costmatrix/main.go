// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package main

import "github.com/d-setiawan/costmatrix/internal/cli"

// main hands over to the cobra command tree.
func main() {
	cli.Execute()
}
