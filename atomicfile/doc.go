/*
Package atomicfile replaces a file so that readers see either the old
content or the complete new content, never a partial write.

Data goes to a temporary file in the destination directory which is
renamed over the destination in Close(). If Write() or Close() fails,
or the writer is abandoned with RemoveIfNotClosed(), the temporary file
is removed and the destination is left untouched.

The store uses it to reset the store file and to install a restored
snapshot:

	err := atomicfile.WriteFile("data/store.txt", nil, 0644)

or, when writing in pieces:

	f, err := atomicfile.NewWithPerm(path, 0644)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	for _, line := range lines {
		if _, err = f.WriteString(line); err != nil {
			return err
		}
	}
	return f.Close()
*/
package atomicfile
