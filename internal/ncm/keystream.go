package ncm

const sboxSize = 256

// keystream is the fixed 256-byte output table of NCM's modified RC4.
// Unlike conventional RC4 there is no evolving generator state: the
// table is derived once from the S-box and then cycled over the whole
// audio buffer.
type keystream [sboxSize]byte

// deriveKeystream runs the standard RC4 key-scheduling pass over the
// unwrapped key material, then derives the one-shot output table. For
// output position p: i = (p+1) mod 256, j = S[i], k = S[(i+j) mod 256],
// K[p] = S[(j+k) mod 256]. The caller guarantees key is non-empty.
func deriveKeystream(key []byte) *keystream {
	var sbox [sboxSize]byte
	for i := range sbox {
		sbox[i] = byte(i)
	}

	j := 0
	for i := 0; i < sboxSize; i++ {
		j = (j + int(sbox[i]) + int(key[i%len(key)])) & 0xff
		sbox[i], sbox[j] = sbox[j], sbox[i]
	}

	var ks keystream
	for p := 0; p < sboxSize; p++ {
		i := (p + 1) & 0xff
		j := int(sbox[i])
		k := int(sbox[(i+j)&0xff])
		ks[p] = sbox[(j+k)&0xff]
	}
	return &ks
}

// apply XORs every byte of buf with the cycled table, starting at
// offset 0. The transform is self-inverse: applying it to plaintext
// re-ciphers, which is why File memoizes its decrypted state.
func (ks *keystream) apply(buf []byte) {
	for n := range buf {
		buf[n] ^= ks[n%sboxSize]
	}
}
