package sourcemap

// encodeLines builds a mappings string from absolute segment values, one
// slice of segments per generated line. Each segment is {generatedColumn} or
// {generatedColumn, source, originalLine, originalColumn[, name]}.
func encodeLines(lines ...[][]int) string {
	var (
		buf  []byte
		prev [5]int
	)
	for i, line := range lines {
		if i > 0 {
			buf = append(buf, ';')
		}
		prev[0] = 0
		for j, seg := range line {
			if j > 0 {
				buf = append(buf, ',')
			}
			for k, v := range seg {
				buf = EncodeVLQ(buf, v-prev[k])
				prev[k] = v
			}
		}
	}
	return string(buf)
}
