package msgpack

// Tag bytes for the self-describing binary object format decoded and
// encoded by this package. Names follow the format's own terminology.
const (
	tagPosFixIntMax = 0x7f
	tagNegFixIntMin = 0xe0

	tagFixMapBase   = 0x80
	tagFixArrayBase = 0x90
	tagFixStrBase   = 0xa0

	tagNil     = 0xc0
	tagUnused  = 0xc1
	tagFalse   = 0xc2
	tagTrue    = 0xc3
	tagBin8    = 0xc4
	tagBin16   = 0xc5
	tagBin32   = 0xc6
	tagExt8    = 0xc7
	tagExt16   = 0xc8
	tagExt32   = 0xc9
	tagFloat32 = 0xca
	tagFloat64 = 0xcb
	tagUint8   = 0xcc
	tagUint16  = 0xcd
	tagUint32  = 0xce
	tagUint64  = 0xcf
	tagInt8    = 0xd0
	tagInt16   = 0xd1
	tagInt32   = 0xd2
	tagInt64   = 0xd3
	tagFixExt1 = 0xd4
	tagFixExt2 = 0xd5
	tagFixExt4 = 0xd6
	tagFixExt8 = 0xd7
	tagFixExt16 = 0xd8
	tagStr8    = 0xd9
	tagStr16   = 0xda
	tagStr32   = 0xdb
	tagArray16 = 0xdc
	tagArray32 = 0xdd
	tagMap16   = 0xde
	tagMap32   = 0xdf
)
