// Command mft2bodyfile reconstructs an NTFS bodyfile v3 timeline from
// a raw $MFT and, optionally, a $UsnJrnl:$J change journal.
package main

import "github.com/ntfs-forensics/mft2bodyfile/cmd"

func main() {
	cmd.Execute()
}
