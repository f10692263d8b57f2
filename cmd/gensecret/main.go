// Command gensecret prints a random hex secret suitable for
// ACCESS_TOKEN_SECRET or REFRESH_TOKEN_SECRET. Run it twice: the two
// signing keys must differ.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

const secretKeyBytesLen = 32

func main() {
	b := make([]byte, secretKeyBytesLen)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Printf("error while generating secret key: %v", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
