// Command apply4me signs in to the internship site, applies to the first
// internship listed, and keeps going while the site offers more.
package main

func main() {
	Execute()
}
