// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// MPU6050 register addresses read by this driver.
// Each 16-bit quantity is a high byte followed by its low byte.
const (
	RegAccelXOutH byte = 0x3B
	RegAccelXOutL byte = 0x3C
	RegAccelYOutH byte = 0x3D
	RegAccelYOutL byte = 0x3E
	RegAccelZOutH byte = 0x3F
	RegAccelZOutL byte = 0x40
	RegTempOutH   byte = 0x41
	RegTempOutL   byte = 0x42
	RegGyroXOutH  byte = 0x43
	RegGyroXOutL  byte = 0x44
	RegGyroYOutH  byte = 0x45
	RegGyroYOutL  byte = 0x46
	RegGyroZOutH  byte = 0x47
	RegGyroZOutL  byte = 0x48

	// RegIdentification is read once at startup for the log only.
	RegIdentification byte = 0xD0
)

// DefaultAddress is the MPU6050 I2C address with AD0 tied low (0x69 when high).
const DefaultAddress uint16 = 0x68

// RegisterInfo describes one register for the register inspector.
type RegisterInfo struct {
	Address     byte
	Name        string
	Description string
	Access      string // "R" only; this driver never writes the sensor
}

// RegisterMap returns metadata for every register the driver reads, in address order.
func RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		// Sensor Data Registers (Read-Only)
		{Address: RegAccelXOutH, Name: "ACCEL_XOUT_H", Description: "Accelerometer X-Axis High Byte", Access: "R"},
		{Address: RegAccelXOutL, Name: "ACCEL_XOUT_L", Description: "Accelerometer X-Axis Low Byte", Access: "R"},
		{Address: RegAccelYOutH, Name: "ACCEL_YOUT_H", Description: "Accelerometer Y-Axis High Byte", Access: "R"},
		{Address: RegAccelYOutL, Name: "ACCEL_YOUT_L", Description: "Accelerometer Y-Axis Low Byte", Access: "R"},
		{Address: RegAccelZOutH, Name: "ACCEL_ZOUT_H", Description: "Accelerometer Z-Axis High Byte", Access: "R"},
		{Address: RegAccelZOutL, Name: "ACCEL_ZOUT_L", Description: "Accelerometer Z-Axis Low Byte", Access: "R"},
		{Address: RegTempOutH, Name: "TEMP_OUT_H", Description: "Temperature High Byte", Access: "R"},
		{Address: RegTempOutL, Name: "TEMP_OUT_L", Description: "Temperature Low Byte", Access: "R"},
		{Address: RegGyroXOutH, Name: "GYRO_XOUT_H", Description: "Gyroscope X-Axis High Byte", Access: "R"},
		{Address: RegGyroXOutL, Name: "GYRO_XOUT_L", Description: "Gyroscope X-Axis Low Byte", Access: "R"},
		{Address: RegGyroYOutH, Name: "GYRO_YOUT_H", Description: "Gyroscope Y-Axis High Byte", Access: "R"},
		{Address: RegGyroYOutL, Name: "GYRO_YOUT_L", Description: "Gyroscope Y-Axis Low Byte", Access: "R"},
		{Address: RegGyroZOutH, Name: "GYRO_ZOUT_H", Description: "Gyroscope Z-Axis High Byte", Access: "R"},
		{Address: RegGyroZOutL, Name: "GYRO_ZOUT_L", Description: "Gyroscope Z-Axis Low Byte", Access: "R"},

		// Identification
		{Address: RegIdentification, Name: "ID", Description: "Identification register, logged at startup", Access: "R"},
	}
}

// LookupRegister returns the metadata for addr, if the driver knows it.
func LookupRegister(addr byte) (RegisterInfo, bool) {
	for _, info := range RegisterMap() {
		if info.Address == addr {
			return info, true
		}
	}
	return RegisterInfo{}, false
}
